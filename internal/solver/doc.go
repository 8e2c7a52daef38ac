/*
Copyright SUSE LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Solver turns package operations (install, update, erase, upgrade, reinstall,
downgrade) into a transaction: the packages to add to and remove from the
system so that every requires, obsoletes and conflicts relation holds.

A package is identified by its NEVRA (name, epoch, version, release, arch) and
carries its relations: provides, requires, obsoletes, conflicts, and its file
list.

To perform a package operation, for example, "install packageA", we:

 1. Build a database of all packages in the world (PkgDB), which contains:
 - Packages installed on the system.
 - Packages in the known repositories whose arch the system can run.

 The database indexes capabilities, file paths and obsoleted names, and is
 frozen for the duration of the resolution.

 2. Expand the jobs into tasks. "upgrade" becomes one update task per
 installed name.arch. Each task resolves its name spec to candidate
 packages: exact NEVRA, then name.arch, then name with the newest version,
 then as a capability. Candidates are replaced by what obsoletes them.

 3. Add the candidates to the Transaction. Every new member queues its
 requirements as one batch, so that the provider chosen for one requirement
 is the one satisfying most of its siblings. Providers are otherwise picked
 by version, arch and NEVRA, never by name length.

 4. When no requirement is pending, check what the removals (erases,
 updates, obsoletions) break: erasing cascades to dependents, replacing
 updates dependents or pulls in another provider. Then check conflicts
 between the packages that will be on the system.

 5. Repeat until nothing changes. The result is "ok" with a transaction,
 "empty" when there is nothing to do, or "err" with the failures. With
 skip-broken, the smallest set of tasks avoiding the failures is dropped,
 found with a weighted MaxSAT solver (gophersat), and the resolution runs
 again.

Resolution is synchronous and owns its Transaction; the package sacks it reads
may be shared between concurrent resolutions.
*/
package solver
